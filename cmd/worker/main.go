package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/job-scheduler/backend/internal/scheduler"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type worker struct {
	cfg         *config.Config
	repo        *repository.Repository
	mqChannel   *amqp.Channel
	redisClient *redis.Client
	logger      *slog.Logger
}

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 排程任务从 scheduling_queue 消费，通知邮件发往 mail_queue
	for _, queue := range []string{"scheduling_queue", "mail_queue"} {
		if _, err := ch.QueueDeclare(
			queue,
			true,
			false,
			false,
			false,
			nil,
		); err != nil {
			logger.Error("无法声明队列", slog.String("queue", queue), slog.String("error", err.Error()))
			return
		}
	}

	// 排程是重计算任务，一次只处理一条消息
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("无法设置 QoS", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 消费消息
	msgs, err := ch.Consume(
		"scheduling_queue",
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	w := &worker{
		cfg:         cfg,
		repo:        repo,
		mqChannel:   ch,
		redisClient: rdb,
		logger:      logger,
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				logger.Info("收到排程任务", slog.String("message", string(msg.Body)))

				task := domain.SchedulingTask{}
				if err := json.Unmarshal(msg.Body, &task); err != nil {
					logger.Error("排程任务反序列化失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				if err := w.handleTask(&task); err != nil {
					logger.Error("排程任务处理失败", slog.Int64("schedule_plan_id", task.SchedulePlanID), slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	// 等待 CTRL+C 信号
	logger.Info("等待排程任务...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	slog.Info("正在关闭 scheduling worker...")
	cancel()
	wg.Wait() // 等待所有 goroutine 完成
	slog.Info("scheduling worker 已成功关闭")
}

func (w *worker) handleTask(task *domain.SchedulingTask) error {
	plan, err := w.repo.GetSchedulePlanByID(task.SchedulePlanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 计划在任务入队后被删除，直接丢弃任务
			w.logger.Warn("排产计划不存在，跳过任务", slog.Int64("schedule_plan_id", task.SchedulePlanID))
			return nil
		}
		return err
	}

	result, runErr := w.runScheduler(plan, &task.Parameters)
	if runErr != nil {
		// 排程失败也要落库状态并通知请求者
		if err := w.repo.UpdateSchedulePlanStatus(plan, domain.SchedulePlanStatusFailed); err != nil {
			return err
		}
		w.sendMail(task.NotifyEmail, domain.MailMessage{
			Type: "scheduling_failed",
			To:   task.NotifyEmail,
			Data: domain.SchedulingFailedMailData{
				PlanName: plan.Name,
				Reason:   runErr.Error(),
			},
		})
		return nil
	}

	if err := w.repo.InsertSchedulingResult(result); err != nil {
		return err
	}
	if err := w.repo.UpdateSchedulePlanStatus(plan, domain.SchedulePlanStatusCompleted); err != nil {
		return err
	}

	// 旧的排产表缓存已经失效
	redisCtx, cancel := context.WithTimeout(context.Background(), time.Duration(w.cfg.Redis.OperationTimeout)*time.Second)
	defer cancel()
	if err := w.redisClient.Del(redisCtx, fmt.Sprintf("schedule_table_%d", plan.ID)).Err(); err != nil {
		w.logger.Error("无法清除排产表缓存", slog.Int64("schedule_plan_id", plan.ID), slog.String("error", err.Error()))
	}

	makespan := int64(0)
	for _, gene := range result.Genes {
		if gene.EndTime > makespan {
			makespan = gene.EndTime
		}
	}

	w.sendMail(task.NotifyEmail, domain.MailMessage{
		Type: "scheduling_finished",
		To:   task.NotifyEmail,
		Data: domain.SchedulingFinishedMailData{
			PlanName: plan.Name,
			Fitness:  result.Fitness,
			Makespan: makespan,
		},
	})

	return nil
}

func (w *worker) runScheduler(plan *domain.SchedulePlan, params *domain.SchedulingParameters) (*domain.SchedulingResult, error) {
	jobs := make([]*domain.Job, 0, len(plan.Jobs))
	for i := range plan.Jobs {
		jobs = append(jobs, &plan.Jobs[i])
	}
	resources := make([]*domain.Resource, 0, len(plan.Resources))
	for i := range plan.Resources {
		resources = append(resources, &plan.Resources[i])
	}

	parameters := &scheduler.Parameters{
		PopulationSize: params.PopulationSize,
		MutationRate:   params.MutationRate,
		CrossoverRate:  params.CrossoverRate,
		SelectionRatio: params.SelectionRatio,
		TournamentSize: params.TournamentSize,
		Quantum:        params.Quantum,
		AllowChunking:  params.AllowChunking,
		Patience:       params.Patience,
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	observer := func(generation int32, bestFitness float64, stallCount int32) {
		if generation%10 == 0 {
			w.logger.Info("排程进展",
				slog.Int64("schedule_plan_id", plan.ID),
				slog.Int("generation", int(generation)),
				slog.Float64("best_fitness", bestFitness),
				slog.Int("stall_count", int(stallCount)),
			)
		}
	}

	engine, err := scheduler.New(parameters, jobs, resources, rng, observer)
	if err != nil {
		return nil, err
	}

	best, fitness, err := engine.Schedule()
	if err != nil {
		return nil, err
	}

	return &domain.SchedulingResult{
		SchedulePlanID: plan.ID,
		Fitness:        fitness,
		Genes:          best.ResultGenes(),
	}, nil
}

func (w *worker) sendMail(to string, mailMessage domain.MailMessage) {
	mailData, err := json.Marshal(mailMessage)
	if err != nil {
		w.logger.Error("邮件信息序列化失败", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(w.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := w.mqChannel.PublishWithContext(
		ctx,
		"",
		"mail_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	); err != nil {
		w.logger.Error("无法发送通知邮件", slog.String("to", to), slog.String("error", err.Error()))
	}
}
