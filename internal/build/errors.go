package build

import "errors"

var (
	ErrNoProject = errors.New("docforge: build request requires a project")
	ErrNoFormat  = errors.New("docforge: build request requires a format")
)

// errStepSkipped lets an enabled step decide at run time that it has nothing
// to do.
var errStepSkipped = errors.New("step skipped")
