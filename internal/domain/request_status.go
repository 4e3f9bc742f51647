package domain

import "strings"

// RequestStatus 是换班申请和加班申请共用的状态机：
// Pending -> Approved | Rejected，后两者为终态。
//
// 两种申请在存储中使用不同的大小写（换班为 "Pending"，加班为 "pending"），
// 因此这里只定义抽象状态，具体的字符串由各自的类型给出。
type RequestStatus int

const (
	RequestPending RequestStatus = iota
	RequestApproved
	RequestRejected
)

func (s RequestStatus) IsTerminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// CanTransition 判断状态机是否允许从 from 转移到 to
func CanTransition(from, to RequestStatus) bool {
	return from == RequestPending && to.IsTerminal()
}

// ParseDecision 将审批结果解析为终态，大小写不敏感
func ParseDecision(s string) (RequestStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approved":
		return RequestApproved, true
	case "rejected":
		return RequestRejected, true
	}
	return RequestPending, false
}
