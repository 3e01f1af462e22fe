package enums

type AuditAction string

const (
	AuditActionDetected   AuditAction = "detected"
	AuditActionApproved   AuditAction = "approved"
	AuditActionRejected   AuditAction = "rejected"
	AuditActionAutoKicked AuditAction = "auto_kicked"
)

func AuditActionForStatus(status CaseStatus) (AuditAction, bool) {
	switch status {
	case CaseStatusApproved:
		return AuditActionApproved, true
	case CaseStatusRejected:
		return AuditActionRejected, true
	case CaseStatusAutoRejected:
		return AuditActionAutoKicked, true
	default:
		return "", false
	}
}
