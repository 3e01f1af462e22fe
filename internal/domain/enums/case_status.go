package enums

type CaseStatus string

const (
	CaseStatusPending      CaseStatus = "PENDING"
	CaseStatusApproved     CaseStatus = "APPROVED"
	CaseStatusRejected     CaseStatus = "REJECTED"
	CaseStatusAutoRejected CaseStatus = "AUTO_REJECTED"
	CaseStatusErrored      CaseStatus = "ERRORED"
)

func (s CaseStatus) IsTerminal() bool {
	return s != CaseStatusPending && s != ""
}

// IsRemoval reports whether reaching this status kicks the entity.
func (s CaseStatus) IsRemoval() bool {
	return s == CaseStatusRejected || s == CaseStatusAutoRejected
}
