package async

import "errors"

var ErrTimeout = errors.New("async: await timed out before the future completed")
