package enums

// Response is the affordance a moderator picked on an approval request.
type Response string

const (
	ResponseApprove Response = "approve"
	ResponseReject  Response = "reject"
)

func (r Response) Status() (CaseStatus, bool) {
	switch r {
	case ResponseApprove:
		return CaseStatusApproved, true
	case ResponseReject:
		return CaseStatusRejected, true
	default:
		return "", false
	}
}

func ParseResponse(raw string) (Response, bool) {
	switch Response(raw) {
	case ResponseApprove, ResponseReject:
		return Response(raw), true
	default:
		return "", false
	}
}
