package main

import (
	"context"
	"time"

	"reservo/internal/reservations/events"
	"reservo/internal/reservations/handler"
	"reservo/internal/reservations/repository"
	"reservo/internal/reservations/service"
	"reservo/internal/reservations/validator"
	"reservo/pkg/app"
	"reservo/pkg/config"
	"reservo/pkg/kafka"
	kafka_config "reservo/pkg/kafka/config"
	kafka_middleware "reservo/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")

	publisher := initPublisher(cfg)
	reservationService := initServices(cfg, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		handler.NewReservationHandler(reservationService, cfg.Log),
	)
	serverApp.OnShutdown(publisher)
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) service.ReservationService {
	reservationValidator := validator.NewReservationValidator(cfg.Log, time.Now)
	reservationRepo := repository.NewMongoReservationRepository(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()
	if err := reservationRepo.EnsureIndexes(ctx); err != nil {
		cfg.Log.Fatal("Failed to ensure reservation indexes", "error", err)
	}

	reservationService := service.NewReservationService(
		reservationRepo,
		reservationValidator,
		publisher,
		time.Now,
		cfg.Log,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName)
	return reservationService
}

func initPublisher(cfg *config.Config) events.Publisher {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	if !kafkaCfg.Enabled() {
		return events.NewNoopPublisher()
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.ReservationsTopic, cfg.ReservationsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	return events.NewKafkaPublisher(producer, ServiceName)
}
