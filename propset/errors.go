package propset

import "errors"

var errNoResolver = errors.New("propset: variable-size property needs a resolver")
