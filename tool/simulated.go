package tool

import (
	"context"
	"fmt"
	"strings"
)

// WeatherArgs are the parameters of the get_weather tool.
type WeatherArgs struct {
	Location string `json:"location" jsonschema:"City or region to report on"`
}

// Weather returns a get_weather tool that produces a simulated report.
func Weather() Descriptor {
	return Func("get_weather",
		"Get the current weather for a location.",
		func(ctx context.Context, args WeatherArgs) (string, error) {
			location := strings.TrimSpace(args.Location)
			if location == "" {
				return "", fmt.Errorf("location is required")
			}
			return fmt.Sprintf("The weather in %s is sunny with a temperature of 25°C.", location), nil
		})
}

// StockArgs are the parameters of the get_stock_price tool.
type StockArgs struct {
	Symbol string `json:"symbol" jsonschema:"Ticker symbol, for example AAPL"`
}

// stockPrices holds the simulated quotes served by StockPrice.
var stockPrices = map[string]float64{
	"AAPL":  150,
	"GOOGL": 2800,
	"TSLA":  700,
}

// StockPrice returns a get_stock_price tool backed by a fixed price table.
func StockPrice() Descriptor {
	return Func("get_stock_price",
		"Get the current price of a stock by ticker symbol.",
		func(ctx context.Context, args StockArgs) (string, error) {
			symbol := strings.ToUpper(strings.TrimSpace(args.Symbol))
			price, ok := stockPrices[symbol]
			if !ok {
				return fmt.Sprintf("No price available for unknown symbol %q.", symbol), nil
			}
			return fmt.Sprintf("%s is trading at $%s.", symbol, FormatNumber(price)), nil
		})
}
