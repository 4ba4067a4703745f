package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/resqconnect/resqconnect-api/api/handlers"
	"github.com/resqconnect/resqconnect-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil {
		zap.S().With(err).Error("failed to initialize resqconnect-api")
		os.Exit(1)
	}

	zap.S().Infow("resqconnect-api is up and running",
		"port", a.Config.Port,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", a.Config.Port), a.Router))
}
