package configs

import "errors"

const configKey = "configs"

var errAssistProviderNotEnabled = errors.New("no enabled ai provider for the assistant")

// maskedSecret is what sensitive values are replaced with on read.
const maskedSecret = "********"
