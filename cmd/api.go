package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/senti/internal/services"
	"github.com/desertthunder/senti/internal/shared"
)

// request sends opts to path, through the session when one is stored so a rejected token ends it.
func (r *Runner) request(ctx context.Context, path string, opts services.RequestOptions) (*services.APIResponse, error) {
	if r.session.IsAuthenticated(ctx) {
		return r.session.AuthenticatedRequest(ctx, path, opts)
	}
	return r.api.Do(ctx, path, opts)
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	if _, err := r.output.Write(resp.Body); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return r.writePlain("\n")
}

// APIGet makes a direct GET request to the server
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.request(ctx, path, services.RequestOptions{Method: http.MethodGet})
	if err != nil {
		return err
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}
	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the server
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	resp, err := r.request(ctx, path, services.JSONOptions(http.MethodPost, []byte(data)))
	if err != nil {
		return err
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}
	return r.writeResponse(resp, true)
}

type dumpError struct {
	Endpoint string `json:"endpoint"`
	Error    string `json:"error"`
}

// APIDump fetches the server state visible to the current session and prints it as one JSON document.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	save := cmd.String("save")

	r.logger.Info("dumping API state")

	type DumpData struct {
		Health         any         `json:"health"`
		TrainingStatus any         `json:"training_status"`
		User           any         `json:"user,omitempty"`
		History        any         `json:"history,omitempty"`
		Trend          any         `json:"trend,omitempty"`
		WordCloud      any         `json:"wordcloud,omitempty"`
		Errors         []dumpError `json:"errors,omitempty"`
	}

	dump := DumpData{Errors: []dumpError{}}

	endpoints := []struct {
		path   string
		auth   bool
		target *any
	}{
		{services.PathHealth, false, &dump.Health},
		{services.PathTrainingStatus, false, &dump.TrainingStatus},
		{services.PathMe, true, &dump.User},
		{services.PathHistory, true, &dump.History},
		{services.PathTrend, true, &dump.Trend},
		{services.PathWordCloud, true, &dump.WordCloud},
	}

	for _, e := range endpoints {
		if e.auth && !r.session.IsAuthenticated(ctx) {
			continue
		}

		r.logger.Debug("fetching", "path", e.path)
		resp, err := r.request(ctx, e.path, services.RequestOptions{Method: http.MethodGet})
		switch {
		case err != nil:
			dump.Errors = append(dump.Errors, dumpError{Endpoint: e.path, Error: err.Error()})
			r.logger.Warn("failed to fetch", "path", e.path, "error", err)
		case !resp.OK():
			msg := resp.Failure(services.MsgFetchFailed).Error()
			dump.Errors = append(dump.Errors, dumpError{Endpoint: e.path, Error: msg})
			r.logger.Warn("failed to fetch", "path", e.path, "status", resp.StatusCode)
		default:
			*e.target = resp.JSONData
		}
	}

	if save != "" {
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(save, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", save)
		}
	}

	return r.writeJSON(dump, pretty)
}
