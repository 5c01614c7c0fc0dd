package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sentinel/internal/classification"
	"github.com/Veraticus/sentinel/internal/cli"
	"github.com/Veraticus/sentinel/internal/mail"
	"github.com/Veraticus/sentinel/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Explain how a message would be classified",
		Long: `Run the receipt classifier on a message and show which stage settled the
decision, the confidence score and the category.

The message is given either as a saved .eml file or with --subject, --from
and --body. Nothing is stored or sent.`,
		RunE: runClassify,
	}

	cmd.Flags().String("eml", "", "Path to a saved RFC 5322 message")
	cmd.Flags().String("subject", "", "Message subject")
	cmd.Flags().String("from", "", "Message sender")
	cmd.Flags().String("body", "", "Message body")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	msg, err := classifyInput(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	classifier, err := newClassifier(cfg)
	if err != nil {
		return err
	}

	e := classifier.Explain(msg)
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(verdict(e), renderExplanation(msg, e)))
	return nil
}

func classifyInput(cmd *cobra.Command) (model.Message, error) {
	eml, _ := cmd.Flags().GetString("eml")
	if eml != "" {
		raw, err := os.ReadFile(eml)
		if err != nil {
			return model.Message{}, fmt.Errorf("failed to read %s: %w", eml, err)
		}
		return mail.ParseMessage(raw, "file")
	}

	subject, _ := cmd.Flags().GetString("subject")
	from, _ := cmd.Flags().GetString("from")
	body, _ := cmd.Flags().GetString("body")
	if subject == "" && body == "" {
		return model.Message{}, errors.New("provide --eml or at least one of --subject and --body")
	}
	return model.NormalizeMessage(model.Message{
		ID:      "cli",
		Subject: subject,
		From:    from,
		Body:    body,
		Source:  "cli",
	}), nil
}

func verdict(e classification.Explanation) string {
	if e.IsReceipt {
		return cli.SuccessStyle.Render(cli.SuccessIcon + " Receipt")
	}
	return cli.WarningStyle.Render(cli.ErrorIcon + " Not a receipt")
}

func renderExplanation(msg model.Message, e classification.Explanation) string {
	pairs := [][2]string{
		{"From", msg.From},
		{"Subject", msg.Subject},
		{"Stage", string(e.Stage)},
		{"Reason", e.Reason},
		{"Category", e.Category.String()},
		{"Confidence", strconv.Itoa(e.Confidence)},
		{"Score", strconv.Itoa(e.Score)},
		{"Known sender", yesNo(e.KnownSender)},
		{"Confirmation", yesNo(e.HasConfirmation)},
	}
	if amount, ok := classification.ExtractAmount(msg.Subject + " " + msg.Body); ok {
		pairs = append(pairs, [2]string{"Amount", fmt.Sprintf("$%.2f", amount)})
	}
	return cli.RenderKeyValues(pairs)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
