package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var weatherCmd = &cobra.Command{
	Use:   "weather <location>",
	Short: "Show current weather for a location",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeather,
}

func init() {
	rootCmd.AddCommand(weatherCmd)
}

func runWeather(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.stop()

	svc, err := e.factory.WeatherService()
	if err != nil {
		return err
	}

	resp := svc.CurrentWeather(cmd.Context(), args[0])
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), resp)
	}
	if !resp.Success {
		return failure(resp)
	}

	w := resp.Data
	source := "live"
	if w.Mock {
		source = "mock"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %.1f°C, %s (humidity %d%%, wind %.1f km/h) [%s]\n",
		w.Location, w.Temperature, w.Condition, w.Humidity, w.WindSpeed, source)
	return err
}
