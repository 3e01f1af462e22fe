package enums

import "testing"

func TestAuditActionForStatus(t *testing.T) {
	cases := map[CaseStatus]AuditAction{
		CaseStatusApproved:     AuditActionApproved,
		CaseStatusRejected:     AuditActionRejected,
		CaseStatusAutoRejected: AuditActionAutoKicked,
	}
	for status, want := range cases {
		got, ok := AuditActionForStatus(status)
		if !ok || got != want {
			t.Fatalf("status %s: expected %s, got %s (ok=%v)", status, want, got, ok)
		}
	}

	if _, ok := AuditActionForStatus(CaseStatusPending); ok {
		t.Fatal("expected no audit action for pending status")
	}
	if _, ok := AuditActionForStatus(CaseStatusErrored); ok {
		t.Fatal("expected no audit action for errored status")
	}
}

func TestResponseStatus(t *testing.T) {
	if status, ok := ResponseApprove.Status(); !ok || status != CaseStatusApproved {
		t.Fatalf("unexpected approve mapping: %s %v", status, ok)
	}
	if status, ok := ResponseReject.Status(); !ok || status != CaseStatusRejected {
		t.Fatalf("unexpected reject mapping: %s %v", status, ok)
	}
	if _, ok := ParseResponse("maybe"); ok {
		t.Fatal("expected unknown response to be rejected")
	}
	if !CaseStatusAutoRejected.IsRemoval() || CaseStatusApproved.IsRemoval() {
		t.Fatal("unexpected removal classification")
	}
	if CaseStatusPending.IsTerminal() || !CaseStatusErrored.IsTerminal() {
		t.Fatal("unexpected terminal classification")
	}
}
