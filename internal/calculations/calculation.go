package calculations

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"vestquest-engine/internal/model"
)

// CalculationHandler defines the contract for every calculation type.
// Validate reports problems with the inputs; Apply runs only when Validate
// raised nothing critical and returns the value to put in the response.
type CalculationHandler interface {
	Validate(p *model.Portfolio, c *model.Calculation) []model.CalculationMessage
	Apply(p *model.Portfolio, c *model.Calculation) (any, []model.CalculationMessage)
}

// decodeProperties reads c.Properties into v. Numbers are kept as
// json.Number so loosely typed fields survive without float rounding.
func decodeProperties(c *model.Calculation, v any) error {
	if len(c.Properties) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(c.Properties))
	dec.UseNumber()
	return dec.Decode(v)
}

func critical(code, format string, args ...any) model.CalculationMessage {
	return model.CalculationMessage{
		Level:   model.LevelCritical,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func warning(code, format string, args ...any) model.CalculationMessage {
	return model.CalculationMessage{
		Level:   model.LevelWarning,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func malformed(err error) []model.CalculationMessage {
	return []model.CalculationMessage{critical(model.CodeInvalidInput, "Malformed properties: %v", err)}
}

// errorMessage maps a core error onto a critical message.
func errorMessage(err error) model.CalculationMessage {
	var inputErr *model.InvalidInputError
	var rangeErr *model.OutOfRangeError
	switch {
	case errors.As(err, &inputErr):
		return critical(model.CodeInvalidInput, "%s", err.Error())
	case errors.As(err, &rangeErr):
		return critical(model.CodeOutOfRange, "%s", err.Error())
	}
	return critical(model.CodeCalculationFailed, "%s", err.Error())
}

func grantNotFound(id string) []model.CalculationMessage {
	return []model.CalculationMessage{critical(model.CodeGrantNotFound, "No grant with id %q", id)}
}
