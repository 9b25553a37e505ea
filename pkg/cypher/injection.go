package cypher

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes one parameter value that tripped the
// injection heuristic.
type InjectionCheckResult struct {
	Fingerprint string // libinjection fingerprint of the detected pattern
	ParamName   string // Name of the parameter that failed the check
	ParamValue  any    // The value that was checked
}

// CheckParameterForInjection runs the libinjection heuristic against one
// parameter value. Only strings are checked; numbers, booleans, and other
// types cannot carry injection payloads and return nil.
//
// Generated queries are fully parameterised, so a hit here means the model
// placed attack-shaped text into a parameter. Defence in depth: the value
// never reaches query text either way.
func CheckParameterForInjection(paramName string, value any) *InjectionCheckResult {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isInjection, fingerprint := libinjection.IsSQLi(strValue)
	if isInjection {
		return &InjectionCheckResult{
			Fingerprint: string(fingerprint),
			ParamName:   paramName,
			ParamValue:  value,
		}
	}

	return nil
}

// CheckAllParameters validates every parameter value, including strings
// nested one level down in slices. Returns one result per offending value;
// empty when all parameters are clean.
func CheckAllParameters(params map[string]any) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for name, value := range params {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				if result := CheckParameterForInjection(name, item); result != nil {
					results = append(results, result)
				}
			}
		case []string:
			for _, item := range v {
				if result := CheckParameterForInjection(name, item); result != nil {
					results = append(results, result)
				}
			}
		default:
			if result := CheckParameterForInjection(name, value); result != nil {
				results = append(results, result)
			}
		}
	}
	return results
}
