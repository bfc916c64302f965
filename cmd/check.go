package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"loan-eligibility/domain"
	"loan-eligibility/service"
)

var errNotTerminal = errors.New("interactive form needs a terminal, use --input to read a JSON application")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fill in a loan application and get an eligibility decision",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return check(cmd)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("input", "i", "", "read the application as JSON from a file ('-' for stdin) instead of prompting")
	checkCmd.Flags().Bool("explain", false, "print the explanation of the decision")
}

func check(cmd *cobra.Command) error {
	config, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	input, _ := cmd.Flags().GetString("input")
	explain, _ := cmd.Flags().GetBool("explain")

	var app domain.RawApplication
	if input != "" {
		app, err = readApplication(input, cmd.InOrStdin())
	} else {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errNotTerminal
		}
		app, err = collectApplication(promptuiForm{})
	}
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deps, err := newComponents(ctx, config, logger)
	if err != nil {
		logger.Error("initializing", zap.Error(err))
		return err
	}
	defer deps.Close()

	printDecision(ctx, cmd.OutOrStdout(), deps.decisions, app, explain)
	return nil
}

// printDecision never fails: evaluation errors are rendered as "Error: ..."
// the same way the HTTP API renders them.
func printDecision(ctx context.Context, out io.Writer, decisions *service.DecisionService, app domain.RawApplication, explain bool) {
	decision, err := decisions.Evaluate(ctx, app)
	if err != nil {
		fmt.Fprintln(out, service.FormatError(err))
		return
	}

	fmt.Fprintln(out, decision.Message)
	if explain && decision.Explanation != "" {
		fmt.Fprintln(out, decision.Explanation)
	}
}

func readApplication(path string, stdin io.Reader) (domain.RawApplication, error) {
	var app domain.RawApplication

	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return app, fmt.Errorf("opening application: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&app); err != nil {
		return app, fmt.Errorf("decoding application: %w", err)
	}
	return app, nil
}

// form asks for one field at a time.
type form interface {
	Select(label string, items []string) (string, error)
	Number(label string, def float64) (float64, error)
}

func collectApplication(f form) (domain.RawApplication, error) {
	var app domain.RawApplication

	selects := []struct {
		label string
		items []string
		set   func(string) error
	}{
		{"Gender", stringsOf(domain.GenderOptions), func(v string) error { return app.Gender.UnmarshalText([]byte(v)) }},
		{"Married", stringsOf(domain.YesNoOptions), func(v string) error { return app.Married.UnmarshalText([]byte(v)) }},
		{"Dependents", stringsOf(domain.DependentsOptions), func(v string) error {
			app.Dependents = domain.Dependents(v)
			return nil
		}},
		{"Education", stringsOf(domain.EducationOptions), func(v string) error { return app.Education.UnmarshalText([]byte(v)) }},
		{"Self Employed", stringsOf(domain.YesNoOptions), func(v string) error { return app.SelfEmployed.UnmarshalText([]byte(v)) }},
	}
	for _, s := range selects {
		v, err := f.Select(s.label, s.items)
		if err != nil {
			return app, err
		}
		if err := s.set(v); err != nil {
			return app, err
		}
	}

	numbers := []struct {
		label  string
		def    float64
		target *float64
	}{
		{"Applicant Income ($)", 5000, &app.ApplicantIncome},
		{"Co-Applicant Income ($)", 0, &app.CoapplicantIncome},
		{"Loan Amount ($)", 100, &app.LoanAmount},
	}
	for _, n := range numbers {
		v, err := f.Number(n.label, n.def)
		if err != nil {
			return app, err
		}
		*n.target = v
	}

	terms := make([]string, len(domain.LoanTermOptions))
	for i, t := range domain.LoanTermOptions {
		terms[i] = strconv.Itoa(t)
	}
	loanTerm, err := f.Select("Loan Term (Months)", terms)
	if err != nil {
		return app, err
	}
	if app.LoanTermMonths, err = strconv.Atoi(loanTerm); err != nil {
		return app, err
	}

	credit, err := f.Select("Credit History", []string{"Good (1.0)", "Bad (0.0)"})
	if err != nil {
		return app, err
	}
	if err := app.CreditHistory.UnmarshalText([]byte(credit)); err != nil {
		return app, err
	}

	area, err := f.Select("Property Area", stringsOf(domain.PropertyAreaOptions))
	if err != nil {
		return app, err
	}
	if err := app.PropertyArea.UnmarshalText([]byte(area)); err != nil {
		return app, err
	}

	return app, nil
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

type promptuiForm struct{}

func (promptuiForm) Select(label string, items []string) (string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
	}
	_, v, err := prompt.Run()
	return v, err
}

func (promptuiForm) Number(label string, def float64) (float64, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  strconv.FormatFloat(def, 'f', -1, 64),
		Validate: validateAmount,
	}
	v, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(v), 64)
}

func validateAmount(input string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return errors.New("enter a number")
	}
	if v < 0 {
		return errors.New("must not be negative")
	}
	return nil
}
