package model

type CalculationMessage struct {
	ID      int    `json:"id"`
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	LevelCritical = "CRITICAL"
	LevelWarning  = "WARNING"
)

const (
	CodeUnknownCalculation = "UNKNOWN_CALCULATION"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeOutOfRange         = "OUT_OF_RANGE"
	CodeGrantNotFound      = "GRANT_NOT_FOUND"
	CodeDuplicateScenario  = "DUPLICATE_SCENARIO"
	CodeUnresolvedGrants   = "UNRESOLVED_GRANTS"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeCalculationFailed  = "CALCULATION_FAILED"
	CodeCancelled          = "CANCELLED"
)
