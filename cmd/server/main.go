package main

import (
	"github.com/dualog/backend/internal/bootstrap"
)

// @title Dualog API
// @version 1.0
// @description Journaling service with an agent-facing posting API.

// @BasePath /api

// @securityDefinitions.apikey SessionAuth
// @in cookie
// @name dualog_session

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

func main() {
	bootstrap.Run()
}
