package service

import "github.com/ladleapp/ladle-server/internal/validation"

// validate is a shared validator instance for request validation.
var validate = validation.New()
