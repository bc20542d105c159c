package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type SchedulingFinishedMailData struct {
	PlanName string  `json:"planName"`
	Fitness  float64 `json:"fitness"`
	Makespan int64   `json:"makespan"`
}

type SchedulingFailedMailData struct {
	PlanName string `json:"planName"`
	Reason   string `json:"reason"`
}
