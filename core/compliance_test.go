package core

import "testing"

func TestComplianceAuditorPassesWhenAllFlagsSet(t *testing.T) {
	a := NewComplianceAuditor(nil)
	s := &Session{
		TransparencyVerified: true,
		FairnessVerified:     true,
		PrivacyVerified:      true,
	}
	if err := a.Audit(s); err != nil {
		t.Fatalf("expected audit to pass, got %v", err)
	}
}

func TestComplianceAuditorFailsOnMissingFlags(t *testing.T) {
	a := NewComplianceAuditor(nil)
	s := &Session{TransparencyVerified: true, FairnessVerified: false, PrivacyVerified: true}
	err := a.Audit(s)
	if err == nil {
		t.Fatalf("expected audit to fail when fairness is unverified")
	}
	coreErr, ok := err.(*Error)
	if !ok || coreErr.Code != CodeComplianceFailed {
		t.Fatalf("expected CodeComplianceFailed, got %v", err)
	}
	if coreErr.Severity != SeverityFatalSession {
		t.Fatalf("expected compliance failure to be session-fatal")
	}
}

func TestComplianceAuditorFailsOnAllFlagsUnset(t *testing.T) {
	a := NewComplianceAuditor(nil)
	s := &Session{}
	if err := a.Audit(s); err == nil {
		t.Fatalf("expected audit to fail when no flags are set")
	}
}
