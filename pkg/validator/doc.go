// Package validator builds declarative validation from small Rule values.
//
// A Rule pairs a Check function with the ValidationError reported when the
// check fails. Apply evaluates all rules and returns every failure at once as
// ValidationErrors, which implements error and matches ErrValidationFailed:
//
//	err := validator.Apply(
//	    validator.ValidEmail("to", p.To),
//	    validator.Required("subject", p.Subject),
//	    validator.RequiredMap("data", p.Data),
//	)
//	if errors.Is(err, validator.ErrValidationFailed) {
//	    fields := validator.ExtractValidationErrors(err).Fields()
//	    ...
//	}
//
// Rules are evaluated eagerly and independently; there is no short-circuit.
package validator
