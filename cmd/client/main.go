package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tesslabs/tess/client"
)

func main() {
	serverURL := flag.String("server", "http://localhost:5000", "server base URL")
	title := flag.String("title", "", "interview role title (required)")
	description := flag.String("description", "", "job description (required)")
	threshold := flag.Float64("threshold", 0, "speech energy threshold (0 = default)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if *title == "" || *description == "" {
		fmt.Fprintln(os.Stderr, "both -title and -description are required")
		flag.Usage()
		os.Exit(1)
	}

	token, err := createInterview(*serverURL, *title, *description)
	if err != nil {
		logger.Fatal("Failed to create interview", zap.Error(err))
	}

	wsURL := strings.Replace(*serverURL, "http", "ws", 1) + "/ws"
	c, err := client.Dial(client.Config{
		ServerURL: wsURL,
		Token:     token,
		Threshold: *threshold,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect", zap.Error(err))
	}

	fmt.Printf("Interview for %q started. Speak when ready; Ctrl-C to finish.\n", *title)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	if err := c.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("Session ended", zap.Error(err))
	}
	fmt.Println("Interview finished.")
}

func createInterview(serverURL, title, description string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"title":       title,
		"description": description,
	})
	if err != nil {
		return "", err
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := httpClient.Post(serverURL+"/interview-inputs", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var created struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	if created.Token == "" {
		return "", fmt.Errorf("server response missing token")
	}
	return created.Token, nil
}
