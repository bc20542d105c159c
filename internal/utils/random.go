package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleViewer,
	domain.RolePlanner,
	domain.RoleAdministrator,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

// GenerateRandomJobs 生成随机的任务列表
// 依赖只指向编号更小的任务，因此生成的依赖图一定是无环的
func GenerateRandomJobs(n int) []domain.Job {
	jobs := make([]domain.Job, n)
	for i := range jobs {
		jobs[i] = domain.Job{
			ID:       int64(i + 1),
			Name:     "任务" + GenerateRandomID(2, 3),
			Duration: int64(rand.Intn(12) + 1),
		}

		if i > 0 && rand.Float64() < 0.6 {
			depNum := rand.Intn(min(i, 3)) + 1
			seen := make(map[int64]bool, depNum)
			for len(seen) < depNum {
				dep := int64(rand.Intn(i) + 1)
				if seen[dep] {
					continue
				}
				seen[dep] = true
				jobs[i].Dependencies = append(jobs[i].Dependencies, dep)
			}
		}
	}
	return jobs
}

// GenerateRandomResources 生成随机的资源列表，保证总容量不小于 totalDuration
func GenerateRandomResources(n int, totalDuration int64) []domain.Resource {
	resources := make([]domain.Resource, n)
	var totalCapacity int64
	for i := range resources {
		capacity := int64(rand.Intn(20) + 5)
		resources[i] = domain.Resource{
			ID:       int64(i + 1),
			Name:     fmt.Sprintf("资源-%02d", i+1),
			Capacity: capacity,
		}
		totalCapacity += capacity
	}

	// 总容量不足时把缺口补到最后一个资源上
	if totalCapacity < totalDuration {
		resources[n-1].Capacity += totalDuration - totalCapacity
	}
	return resources
}

// GenerateRandomSchedulePlan 生成一个随机的排程计划
func GenerateRandomSchedulePlan() *domain.SchedulePlan {
	jobs := GenerateRandomJobs(rand.Intn(10) + 5)

	var totalDuration int64
	for _, job := range jobs {
		totalDuration += job.Duration
	}

	return &domain.SchedulePlan{
		Name:        "排程计划" + GenerateRandomID(3, 3),
		Description: "排程计划描述" + GenerateRandomID(20, 10),
		Status:      domain.SchedulePlanStatusPending,
		Jobs:        jobs,
		Resources:   GenerateRandomResources(rand.Intn(3)+2, totalDuration),
	}
}
