package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brightsmile/engagebot-go/internal/config"
	"github.com/brightsmile/engagebot-go/internal/model"
	"github.com/brightsmile/engagebot-go/internal/service"
	"github.com/spf13/cobra"
)

func newClassifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Classify the emotional state of a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			logger := opts.logger()

			classifier, _, err := opts.collaborators(logger)
			if err != nil {
				return err
			}

			cfg := config.EngagementConfig{ClassifyTimeout: defaultClassifyTimeout}
			engine := service.NewEngagementService(classifier, nil, nil, cfg, nil, logger)
			reading := engine.Classify(cmd.Context(), text)

			if opts.asJSON {
				data, err := json.Marshal(reading)
				if err != nil {
					return err
				}
				return writeJSONLine(cmd.OutOrStdout(), data)
			}

			fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render("Emotion"))
			fmt.Fprintln(cmd.OutOrStdout(), formatReading(reading))
			directive := service.SelectStrategy(reading)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", labelStyle.Render("strategy:"), directive.Instruction)
			return nil
		},
	}
}

func formatReading(r model.EmotionReading) string {
	urgency := string(r.Urgency)
	if r.IsUrgent() {
		urgency = urgentStyle.Render(urgency)
	}
	primary := r.Primary
	if r.Secondary != "" {
		primary += "/" + r.Secondary
	}
	return fmt.Sprintf("%s %s  %s %d/10  %s %.2f  %s %s  %s %s",
		labelStyle.Render("primary:"), primary,
		labelStyle.Render("intensity:"), r.Intensity,
		labelStyle.Render("confidence:"), r.Confidence,
		labelStyle.Render("context:"), r.Context,
		labelStyle.Render("urgency:"), urgency)
}
