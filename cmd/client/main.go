package main

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	baseURL string
	http    *http.Client
}

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	c := &client{}
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:          "crowd-client",
		Short:        "Клиент API мониторинга плотности толпы",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.http = &http.Client{Timeout: timeout}
		},
	}
	cmd.PersistentFlags().StringVar(&c.baseURL, "server", "http://localhost:8080", "адрес сервера")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "таймаут запроса")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "health",
			Short: "Проверить состояние сервиса",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.print(cmd.OutOrStdout(), "Health check", http.MethodGet, "/api/health", nil, "")
			},
		},
		&cobra.Command{
			Use:   "upload <file>",
			Short: "Отправить видео или изображение на анализ",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.upload(cmd.OutOrStdout(), args[0])
			},
		},
		&cobra.Command{
			Use:   "analytics",
			Short: "Последние анализы, тревоги и площадки",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.print(cmd.OutOrStdout(), "Аналитика", http.MethodGet, "/api/analytics", nil, "")
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Удалить анализ",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.print(cmd.OutOrStdout(), "Удаление", http.MethodDelete, "/api/analyses/"+args[0], nil, "")
			},
		},
		&cobra.Command{
			Use:   "site <id> <count>",
			Short: "Обновить количество людей на площадке",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				count, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("неверное количество: %w", err)
				}
				body := bytes.NewBufferString(fmt.Sprintf(`{"count":%d}`, count))
				return c.print(cmd.OutOrStdout(), "Площадка", http.MethodPut, "/api/sites/"+args[0], body, "application/json")
			},
		},
	)
	return cmd
}

func (c *client) upload(out io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ошибка чтения файла: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("ошибка создания form field: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("ошибка записи файла: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("ошибка формирования запроса: %w", err)
	}

	fmt.Fprintf(out, "Отправляем %s на анализ...\n", path)
	return c.print(out, "Ответ анализа", http.MethodPost, "/api/upload", &body, writer.FormDataContentType())
}

func (c *client) print(out io.Writer, title, method, path string, body io.Reader, contentType string) error {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	fmt.Fprintf(out, "%s (статус %d):\n%s\n", title, resp.StatusCode, string(respBody))
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("сервер вернул статус %d", resp.StatusCode)
	}
	return nil
}
