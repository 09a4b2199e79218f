package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/brightsmile/engagebot-go/internal/model"
	"github.com/brightsmile/engagebot-go/internal/service"
	"github.com/spf13/cobra"
)

func newScoreCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "score <session.json|->",
		Short: "Compute the lead score of an exported session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader
			if args[0] == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open session file: %w", err)
				}
				defer f.Close()
				r = f
			}

			sess, err := decodeSession(r)
			if err != nil {
				return err
			}
			score := service.Score(sess)

			if opts.asJSON {
				data, err := json.Marshal(model.ScoreResponse{Score: score})
				if err != nil {
					return err
				}
				return writeJSONLine(cmd.OutOrStdout(), data)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", titleStyle.Render("Lead score:"), fmt.Sprint(score))
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d  %s %s\n",
				labelStyle.Render("messages:"), len(sess.Messages),
				labelStyle.Render("status:"), sess.Status)
			return nil
		},
	}
}

// decodeSession 接受 {"session": {...}} 或直接的会话对象
func decodeSession(r io.Reader) (*model.Session, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var env struct {
		Session *model.Session `json:"session"`
	}
	if err := json.Unmarshal(data, &env); err == nil && env.Session != nil {
		return env.Session, nil
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &sess, nil
}
