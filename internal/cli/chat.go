package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/brightsmile/engagebot-go/internal/config"
	"github.com/brightsmile/engagebot-go/internal/model"
	"github.com/brightsmile/engagebot-go/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const defaultClassifyTimeout = 3 * time.Second

func newChatCmd(opts *options) *cobra.Command {
	var threshold int

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Hold a conversation with the engine on stdin",
		Long: `Reads one patient message per line and prints the reply, emotion and lead score.

Commands:
  /book    confirm a booking
  /close   close the session
  /dump    print the session as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger()
			classifier, generator, err := opts.collaborators(logger)
			if err != nil {
				return err
			}

			cfg := config.EngagementConfig{
				QualifyThreshold: threshold,
				ContextWindow:    5,
				ClassifyTimeout:  defaultClassifyTimeout,
				GenerateTimeout:  8 * time.Second,
				MaxTokens:        300,
				Temperature:      0.7,
			}
			engine := service.NewEngagementService(classifier, generator, nil, cfg, nil, logger)

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			sess := model.NewSession(uuid.NewString(), time.Now())

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				switch line {
				case "/book":
					sess, err = engine.ConfirmBooking(ctx, sess)
				case "/close":
					sess, err = engine.Close(ctx, sess)
				case "/dump":
					data, jerr := json.MarshalIndent(sess, "", "  ")
					if jerr != nil {
						return jerr
					}
					fmt.Fprintln(out, string(data))
					continue
				default:
					var reply string
					reply, sess, err = engine.HandleTurn(ctx, sess, line)
					if err == nil {
						last := sess.Messages[len(sess.Messages)-2]
						fmt.Fprintf(out, "%s %s\n", patientStyle.Render("patient:"), line)
						fmt.Fprintf(out, "%s %s\n", labelStyle.Render("  "), formatReading(*last.Emotion))
						fmt.Fprintf(out, "%s %s\n", assistantStyle.Render("assistant:"), reply)
					}
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %d  %s %s\n\n",
					labelStyle.Render("score:"), sess.LeadScore,
					labelStyle.Render("status:"), sess.Status)
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			fmt.Fprintf(out, "%s %d messages, score %d, status %s\n",
				titleStyle.Render("Session ended:"), len(sess.Messages), sess.LeadScore, sess.Status)
			return nil
		},
	}

	cmd.Flags().IntVar(&threshold, "threshold", 60, "Lead score that qualifies a session")
	return cmd
}
