package main

import (
	"Hearth/CronJobs"
	"Hearth/Escalation"
	"Hearth/FiberConfig"
	"Hearth/Ledger"
	"Hearth/Models"
	"Hearth/Notifications"
	"context"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	setupLogging()

	Models.Connect()

	gateway := buildGateway()
	engine := Escalation.NewEngine(Models.DB, gateway)
	ledger := Ledger.NewService(Models.DB)

	checker := CronJobs.NewEscalationChecker(Models.DB, engine, true)
	if err := checker.Start(); err != nil {
		log.Fatal("Failed to start escalation checker:", err)
	}
	defer checker.Stop()

	if slackGateway, err := Notifications.NewSlackGateway(); err == nil {
		digest := CronJobs.NewDailyDigest(Models.DB, slackGateway)
		if err := digest.Start(); err != nil {
			log.Println("Failed to start daily digest:", err)
		} else {
			defer digest.Stop()
		}
	} else {
		log.Println("Daily digest disabled:", err)
	}

	FiberConfig.FiberConfig(engine, ledger)
}

// buildGateway assembles the notification fanout from whatever channels
// are configured. With nothing configured the log gateway keeps
// escalation output visible.
func buildGateway() Notifications.Gateway {
	var gateways []Notifications.Gateway

	if fcm, err := Notifications.InitFirebase(context.Background(), Models.DB); err == nil {
		gateways = append(gateways, fcm)
	} else {
		log.Println("FCM disabled:", err)
	}

	if slackGateway, err := Notifications.NewSlackGateway(); err == nil {
		gateways = append(gateways, slackGateway)
	} else {
		log.Println("Slack disabled:", err)
	}

	if len(gateways) == 0 {
		return &Notifications.LogGateway{}
	}
	return &Notifications.Fanout{Gateways: gateways}
}

func setupLogging() {
	// Create logs directory if it doesn't exist
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
		return
	}

	// Set up main application log file
	logFile, err := os.OpenFile("logs/application.log",
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)

	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}

	// Redirect log output to the file
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	log.SetFlags(log.Ldate | log.Ltime)
}
