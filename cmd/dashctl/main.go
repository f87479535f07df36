package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unclebandit/engagesphere-dashboard/internal/auth"
	"github.com/unclebandit/engagesphere-dashboard/internal/campaignapi"
	"github.com/unclebandit/engagesphere-dashboard/internal/config"
	"github.com/unclebandit/engagesphere-dashboard/internal/model"
	"github.com/unclebandit/engagesphere-dashboard/internal/service"
	"github.com/unclebandit/engagesphere-dashboard/internal/tips"
)

// cli carries the state shared by every dashctl command.
type cli struct {
	out     io.Writer
	apiURL  string
	token   string
	service *service.CampaignService
	flow    *tips.Flow
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	rootCmd := &cobra.Command{
		Use:          "dashctl",
		Short:        "Inspect and manage campaigns from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd.Context())
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.PersistentFlags().StringVar(&c.apiURL, "api", "", "campaign service base URL (default from SERVER_PORT/API_HOST)")
	rootCmd.PersistentFlags().StringVar(&c.token, "token", os.Getenv("DASHCTL_TOKEN"), "session token sent as x-auth-token")

	campaignCmd := &cobra.Command{
		Use:   "campaign",
		Short: "Work with campaigns",
	}
	campaignCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List campaigns",
			Args:  cobra.NoArgs,
			RunE:  c.runList,
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a campaign with its delivery statistics",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runShow,
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a campaign",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runDelete,
		},
	)

	var count int
	tipsCmd := &cobra.Command{
		Use:   "tips",
		Short: "Generate marketing tips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := model.TipRequest{}
			if cmd.Flags().Changed("count") {
				req.Count = &count
			}
			return c.runTips(cmd.Context(), req)
		},
	}
	tipsCmd.Flags().IntVar(&count, "count", model.DefaultTipCount, "number of tips to generate")

	rootCmd.AddCommand(campaignCmd, tipsCmd)
	return rootCmd
}

func (c *cli) setup(ctx context.Context) error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	if c.apiURL == "" {
		c.apiURL = cfg.APIBaseURL()
	}
	logger := zap.NewNop()

	if c.service == nil {
		c.service = &service.CampaignService{
			API:    campaignapi.New(c.apiURL, cfg.HTTPTimeout, logger, nil),
			Logger: logger,
		}
	}
	if c.flow == nil {
		var m tips.Model = tips.DisabledModel{}
		if cfg.GeminiAPIKey != "" {
			gm, err := tips.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				return err
			}
			m = gm
		}
		c.flow = tips.NewFlow(m, logger, nil)
	}
	return nil
}

func (c *cli) session() *auth.Session {
	return &auth.Session{Token: c.token}
}

func (c *cli) runList(cmd *cobra.Command, args []string) error {
	campaigns, err := c.service.ListCampaigns(cmd.Context(), c.session())
	if err != nil {
		return err
	}
	if len(campaigns) == 0 {
		fmt.Fprintln(c.out, "No campaigns found.")
		return nil
	}
	for _, camp := range campaigns {
		fmt.Fprintf(c.out, "%-38s %-10s %s\n", camp.ID, camp.Status, camp.Name)
	}
	return nil
}

func (c *cli) runShow(cmd *cobra.Command, args []string) error {
	d, err := c.service.GetCampaignDetails(cmd.Context(), c.session(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%s [%s]\n", d.Campaign.Name, d.Campaign.Status)
	fmt.Fprintf(c.out, "Message:  %s\n", d.Campaign.Message)
	fmt.Fprintf(c.out, "Segment:  %s\n", d.SegmentLabel)
	if len(d.Rules) > 0 {
		rules := make([]string, 0, len(d.Rules))
		for _, r := range d.Rules {
			rules = append(rules, fmt.Sprintf("%s %s %s", r.Field, r.Operator, r.Value))
		}
		fmt.Fprintf(c.out, "Rules:    %s\n", strings.Join(rules, " "+string(d.RuleLogic)+" "))
	}
	if d.ShowPerformance {
		fmt.Fprintf(c.out, "Audience: %d\n", d.Stats.AudienceSize)
		fmt.Fprintf(c.out, "Sent:     %d\n", d.Stats.Sent)
		fmt.Fprintf(c.out, "Failed:   %d\n", d.Stats.Failed)
		fmt.Fprintf(c.out, "Success:  %s\n", d.SuccessRateLabel)
	}
	return nil
}

type printNavigator struct {
	out io.Writer
}

func (n printNavigator) Navigate(path string) {
	fmt.Fprintf(n.out, "Redirect: %s\n", path)
}

func (c *cli) runDelete(cmd *cobra.Command, args []string) error {
	if err := c.service.DeleteCampaign(cmd.Context(), c.session(), args[0], printNavigator{out: c.out}); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Deleted campaign %s\n", args[0])
	return nil
}

func (c *cli) runTips(ctx context.Context, req model.TipRequest) error {
	resp, err := c.flow.Generate(ctx, req)
	if err != nil {
		return err
	}
	if len(resp.Tips) == 0 {
		fmt.Fprintln(c.out, "No tips available right now.")
		return nil
	}
	for i, tip := range resp.Tips {
		fmt.Fprintf(c.out, "%d. %s\n", i+1, tip)
	}
	return nil
}
