package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/app"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/auth"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/config"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/logging"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "reportctl",
		Short:         "Reportes offline sobre el caché de pedidos de Magazord",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(advancedCmd())
	rootCmd.AddCommand(repairCmd())
	rootCmd.AddCommand(passwdCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp carga configuración y dependencias, corre fn y cierra el store.
func withApp(ctx context.Context, fn func(*app.App) error) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, deps.Close(context.Background()))
	}()
	return fn(deps)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func advancedCmd() *cobra.Command {
	var days, months int

	cmd := &cobra.Command{
		Use:   "advanced",
		Short: "Geografía, variantes y churn sobre todo el caché persistido",
		Long: `Calcula el reporte avanzado solo con los detalles ya guardados en el
caché, sin listar pedidos en Magazord. Con --dias 0 usa todo el historial.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Service.CachedAdvancedReport(days, months))
			})
		},
	}

	cmd.Flags().IntVar(&days, "dias", 0, "Ventana en días para geografía y variantes (0 = todo)")
	cmd.Flags().IntVar(&months, "meses", 3, "Meses sin comprar para considerar un cliente en riesgo")

	return cmd
}

func repairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Completa entradas del caché a las que les falta el email del cliente",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Service.Repair(cmd.Context()))
			})
		},
	}
}

func passwdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd [usuario] [password]",
		Short: "Crea un usuario del dashboard o cambia su password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			users, err := auth.LoadUsers(cfg.Auth.UsersFile, "", "", zap.NewNop())
			if err != nil {
				return err
			}
			if err := users.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", args[0])
			return nil
		},
	}
}
