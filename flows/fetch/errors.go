package fetch

import "errors"

var ErrLoaderRequired = errors.New("loader is required")
