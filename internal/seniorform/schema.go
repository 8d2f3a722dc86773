package seniorform

import "github.com/diewo77/go-seniorcare/validation"

// Schema returns the constraint table of the senior user form. Every field
// is optional and nullable; an entirely empty submission is valid.
func Schema() validation.Schema {
	return validation.Schema{
		// Records created elsewhere may carry a null progress; saving them
		// untouched must not fail validation.
		{Field: FieldProgress, Optional: true, Nullable: true},
		{Field: FieldUserID, Optional: true, Nullable: true},
		{Field: FieldHealthPlanID, Optional: true, Nullable: true},
	}
}

func lookupValues(v Values) validation.Lookup {
	return func(field string) (*string, bool) {
		value, err := v.Get(field)
		if err != nil {
			return nil, false
		}
		return value, true
	}
}
