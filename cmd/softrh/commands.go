package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/softrh/softrh/internal/config"
	"github.com/softrh/softrh/internal/dashboard"
	"github.com/softrh/softrh/internal/notify"
	"github.com/softrh/softrh/internal/recordstore"
	"github.com/softrh/softrh/internal/recruitment"
)

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show headcount, cost and pending work",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			st, err := a.store.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return printJSON(cmd.OutOrStdout(), st)
			}
			w := cmd.OutOrStdout()
			printStatus(w, "Employees", "%d (%d new in 30 days)", st.TotalEmployees, st.NewEmployees)
			printStatus(w, "On vacation", "%d", st.EmployeesOnVacation)
			printStatus(w, "Satisfaction", "%d%%", st.SatisfactionRate)
			printStatus(w, "HR cost", "%s", strconv.FormatFloat(st.HRCost, 'f', 2, 64))
			printStatus(w, "Documents", "%d (%d expiring)", st.TotalDocuments, st.ExpiringDocuments)
			printStatus(w, "Pending vacations", "%d", st.PendingVacations)
			return nil
		})
	},
}

// --- alerts ---

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List current alerts, optionally mailing them to the contact address",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetBool("email")
		return withApp(cmd.Context(), func(a *app) error {
			alerts, err := dashboard.New(a.store).Alerts(cmd.Context())
			if err != nil {
				return err
			}
			if len(alerts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No alerts.")
			}
			for _, al := range alerts {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", al.Level, al.Title, al.Description)
			}
			if !email || len(alerts) == 0 {
				return nil
			}

			mc := a.cfg.Mail
			if mc.Host == "" {
				return fmt.Errorf("mail.host is not configured; set it with 'softrh config set mail.host <host>'")
			}
			company, err := a.store.Configuration(cmd.Context())
			if err != nil {
				return err
			}
			mailer := notify.NewMailer(mc.Host, mc.Port, mc.Username, mc.Password, mc.From)
			if err := mailer.SendAlerts(company, alerts, a.store.Now()); err != nil {
				return fmt.Errorf("sending alert digest: %w", err)
			}
			printSuccess("Sent %d alerts to %s", len(alerts), company.ContactEmail)
			return nil
		})
	},
}

// --- report ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print JSON reports",
}

var reportRecruitmentCmd = &cobra.Command{
	Use:   "recruitment",
	Short: "Vacancies by department and status, candidates per vacancy",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			r, err := recruitment.New(a.store).Report(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		})
	},
}

var reportDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Statistics and employee, vacancy and review lists",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		return withApp(cmd.Context(), func(a *app) error {
			data, err := dashboard.New(a.store).Export(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			printSuccess("Dashboard exported to %s", output)
			return nil
		})
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "print JSON")
	alertsCmd.Flags().Bool("email", false, "mail the alerts to the company contact address")
	reportDashboardCmd.Flags().String("output", "", "output file (default: stdout)")
	reportCmd.AddCommand(reportRecruitmentCmd, reportDashboardCmd)
}

// --- data ---

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Back up, restore, reset or seed the record store",
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a full backup as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		return withApp(cmd.Context(), func(a *app) error {
			data, err := a.store.Export(cmd.Context())
			if err != nil {
				return err
			}
			if output == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if output == "" {
				output = recordstore.BackupFileName(a.store.Now())
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("writing backup: %w", err)
			}
			printSuccess("Data exported to %s", output)
			return nil
		})
	},
}

var dataImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all records with a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading backup: %w", err)
		}
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.store.Import(cmd.Context(), data); err != nil {
				return err
			}
			printSuccess("Imported %s", args[0])
			return nil
		})
	},
}

var dataResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every record",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete ALL records. Use --confirm to proceed.")
			return nil
		}
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.store.Reset(cmd.Context()); err != nil {
				return err
			}
			printSuccess("All records deleted")
			return nil
		})
	},
}

var dataSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample employees, vacancies and reviews into an empty store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			seeded, err := recordstore.Seed(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			if !seeded {
				printWarning("Store already has employees; nothing seeded")
				return nil
			}
			printSuccess("Sample data loaded")
			return nil
		})
	},
}

func init() {
	dataExportCmd.Flags().String("output", "", "output file, - for stdout (default backup-soft-rh-<date>.json)")
	dataResetCmd.Flags().Bool("confirm", false, "confirm the reset")
	dataCmd.AddCommand(dataExportCmd, dataImportCmd, dataResetCmd, dataSeedCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(key, value); err != nil {
			return fmt.Errorf("%w (valid keys: %v)", err, config.ValidKeys())
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
}
