package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type askRequest struct {
	Query    string `json:"query"`
	Provider string `json:"provider,omitempty"`
	TopK     int    `json:"top_k,omitempty"`
}

type askResponse struct {
	Answer  string `json:"answer"`
	Sources []struct {
		SourceURL string `json:"source_url"`
		Title     string `json:"title"`
	} `json:"sources"`
}

type streamEvent struct {
	Phase   string `json:"phase"`
	Status  string `json:"status,omitempty"`
	Delta   string `json:"delta,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

var (
	serverURL string
	provider  string
	topK      int
	stream    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "askctl",
		Short: "Query the cloud security orchestrator from the command line",
	}

	askCmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "Ask a cloud security question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if stream {
				return runStream(query)
			}
			return runSync(query)
		},
	}
	askCmd.Flags().StringVar(&serverURL, "server", "http://localhost:9020", "Orchestrator base URL")
	askCmd.Flags().StringVar(&provider, "provider", "", "Cloud provider context (aws, gcp, azure)")
	askCmd.Flags().IntVar(&topK, "top-k", 0, "Number of passages to retrieve (0 uses the server default)")
	askCmd.Flags().BoolVar(&stream, "stream", false, "Stream deliberation output as it is generated")

	rootCmd.AddCommand(askCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func postJSON(path, query string) (*http.Response, error) {
	payload, err := json.Marshal(askRequest{Query: query, Provider: provider, TopK: topK})
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Post(strings.TrimRight(serverURL, "/")+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func runSync(query string) error {
	resp, err := postJSON("/v1/ask", query)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var result askResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range result.Sources {
			fmt.Printf("  - %s (%s)\n", s.Title, s.SourceURL)
		}
	}
	return nil
}

func runStream(query string) error {
	resp, err := postJSON("/v1/ask/stream", query)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lastPhase := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return fmt.Errorf("failed to decode stream event: %w", err)
		}
		if ev.Phase != lastPhase {
			if lastPhase != "" {
				fmt.Println()
			}
			fmt.Printf("[%s]\n", ev.Phase)
			lastPhase = ev.Phase
		}
		switch {
		case ev.Error != "":
			fmt.Printf("error: %s\n", ev.Error)
		case ev.Delta != "":
			fmt.Print(ev.Delta)
		case ev.Content != "" && ev.Status == "Completed":
			// the final answer already streamed as deltas
		case ev.Content != "":
			fmt.Println(ev.Content)
		}
	}
	fmt.Println()
	return scanner.Err()
}
