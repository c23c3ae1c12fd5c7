package core

// compliance.go — ComplianceAuditor (spec §4.8).
//
// Runs after CostEngine and before a session activation call returns.
// Requires transparency_verified, fairness_verified (both set by CostEngine
// — spec §4.6) and privacy_verified (set by PhantomIdentity proof
// verification of every admitted device — spec §4.2). Absence of any flag
// means the session cannot activate and must be torn down cleanly.

import "github.com/sirupsen/logrus"

// ComplianceAuditor checks the three compliance flags before letting a
// session activate.
type ComplianceAuditor struct {
	log *logrus.Logger
}

// NewComplianceAuditor builds an auditor; a nil logger defaults to
// logrus.StandardLogger().
func NewComplianceAuditor(log *logrus.Logger) *ComplianceAuditor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ComplianceAuditor{log: log}
}

// Audit returns nil if s may activate, or a session-fatal ComplianceFailed
// Error naming which flag(s) are unset.
func (c *ComplianceAuditor) Audit(s *Session) error {
	var missing []string
	if !s.TransparencyVerified {
		missing = append(missing, "transparency")
	}
	if !s.FairnessVerified {
		missing = append(missing, "fairness")
	}
	if !s.PrivacyVerified {
		missing = append(missing, "privacy")
	}
	if len(missing) > 0 {
		c.log.WithField("session_id", s.SessionID).WithField("missing", missing).Warn("compliance audit failed")
		return WrapError(CodeComplianceFailed, SeverityFatalSession, errMissingFlags(missing))
	}
	c.log.WithField("session_id", s.SessionID).Info("compliance audit passed")
	return nil
}

type missingFlagsError struct{ flags []string }

func (e *missingFlagsError) Error() string {
	msg := "compliance flags not set:"
	for _, f := range e.flags {
		msg += " " + f
	}
	return msg
}

func errMissingFlags(flags []string) error { return &missingFlagsError{flags: flags} }
