package domain

// MailQueue 是 api 投递、mail worker 消费的队列名称
const MailQueue = "email_queue"

const (
	MailTypeCreateUser             = "create_user"
	MailTypeResetPassword          = "reset_password"
	MailTypeSwapRequestCreated     = "swap_request_created"
	MailTypeSwapRequestDecided     = "swap_request_decided"
	MailTypeOvertimeRequestDecided = "overtime_request_decided"
)

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

type ResetPasswordMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type SwapRequestCreatedMailData struct {
	FullName      string `json:"fullName"`
	RequesterName string `json:"requesterName"`
	RequestID     int64  `json:"requestID"`
	Reason        string `json:"reason"`
}

type SwapRequestDecidedMailData struct {
	FullName  string     `json:"fullName"`
	RequestID int64      `json:"requestID"`
	Status    SwapStatus `json:"status"`
}

type OvertimeRequestDecidedMailData struct {
	FullName  string         `json:"fullName"`
	RequestID int64          `json:"requestID"`
	Status    OvertimeStatus `json:"status"`
	Duration  int32          `json:"duration"`
}
