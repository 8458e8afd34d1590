package config

import "os"

func IsDebug() bool {
	return os.Getenv("HEALTHBOT_DEBUG") == "1"
}
