package domain

// VerdictStatus is the compliance outcome for one analyzed file
type VerdictStatus string

const (
	VerdictCompliant          VerdictStatus = "COMPLIANT"
	VerdictPartiallyCompliant VerdictStatus = "PARTIALLY_COMPLIANT"
	VerdictNonCompliant       VerdictStatus = "NON_COMPLIANT"
	VerdictUnknown            VerdictStatus = "UNKNOWN"
)

// RiskLevel summarizes the overall risk of an analyzed file
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Verdict is the structured compliance result for one analyzed file.
// Ephemeral; produced per request and never persisted.
type Verdict struct {
	Status           VerdictStatus
	Risk             RiskLevel
	Summary          string
	SecureExample    string
	InsecureExample  string
	KnowledgeSources []string
}

// NormalizeVerdictStatus maps arbitrary model output onto a known status,
// falling back to UNKNOWN.
func NormalizeVerdictStatus(s string) VerdictStatus {
	switch VerdictStatus(s) {
	case VerdictCompliant, VerdictPartiallyCompliant, VerdictNonCompliant:
		return VerdictStatus(s)
	}
	return VerdictUnknown
}

// NormalizeRiskLevel maps arbitrary model output onto a known risk level,
// falling back to MEDIUM.
func NormalizeRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh:
		return RiskLevel(s)
	}
	return RiskMedium
}
