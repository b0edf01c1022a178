package query

import (
	"fmt"

	"github.com/wisbric/skywatch/internal/errs"
)

func errNotFound(designation string) error {
	return errs.NotFoundf(fmt.Sprintf("no asteroid found for designation %q", designation))
}
