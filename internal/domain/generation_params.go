package domain

// Int returns an integer parameter. Absent and null values report false.
func (p GenerationParams) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Float returns a floating point parameter. Absent and null values report false.
func (p GenerationParams) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Bool returns a boolean parameter. Absent and null values report false.
func (p GenerationParams) Bool(key string) (value bool, ok bool) {
	value, ok = p[key].(bool)
	return value, ok
}

// Strings returns a string list parameter.
func (p GenerationParams) Strings(key string) []string {
	values, _ := p[key].([]string)
	return values
}
