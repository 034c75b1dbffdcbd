package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/inspiring-reading/exam-backend/internal/config"
	"github.com/inspiring-reading/exam-backend/internal/database"
	"github.com/inspiring-reading/exam-backend/internal/logger"
	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/inspiring-reading/exam-backend/internal/repository"
	"github.com/inspiring-reading/exam-backend/internal/service"
	"github.com/inspiring-reading/exam-backend/internal/validator"
)

func main() {
	var (
		file     string
		students int
		password string
	)
	flag.StringVar(&file, "file", "seeds/reading_sample.json", "Exam definition to load")
	flag.IntVar(&students, "students", 0, "Also create this many demo student accounts")
	flag.StringVar(&password, "student-password", "password123", "Password for demo students")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	req, err := loadExam(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Invalid exam definition")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Seeding writes straight to Postgres; a running server picks the exam
	// up on its first cache miss.
	examService := service.NewExamService(repository.NewExamRepository(pool), nil, log)
	exam, err := examService.Create(ctx, *req)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			for field, msg := range ve.Fields {
				fmt.Printf("  %s: %s\n", field, msg)
			}
		}
		log.Fatal().Err(err).Msg("Failed to create exam")
	}
	fmt.Printf("Created exam %d %q with %d questions\n", exam.ID, exam.Title, len(exam.Questions))

	if students <= 0 {
		return
	}

	userService := service.NewUserService(repository.NewUserRepository(pool), service.NewAuthService(cfg, nil), log)
	created := 0
	for i := 1; i <= students; i++ {
		username := fmt.Sprintf("student%02d", i)
		if _, err := userService.Create(ctx, username, password, model.RoleStudent); err != nil {
			if errors.Is(err, service.ErrUsernameTaken) {
				continue
			}
			log.Fatal().Err(err).Str("username", username).Msg("Failed to create student")
		}
		created++
	}
	fmt.Printf("Created %d of %d demo students\n", created, students)
}

// loadExam reads and validates an exam definition with the same rules as
// the admin API.
func loadExam(path string) (*model.CreateExamRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var req model.CreateExamRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return nil, fmt.Errorf("%v", validator.TranslateErrors(err))
	}
	return &req, nil
}
