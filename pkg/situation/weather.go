package situation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const openMeteoURL = "https://api.open-meteo.com"

// OpenMeteo fetches current conditions from the Open-Meteo API for a fixed
// coordinate pair. No API key required.
type OpenMeteo struct {
	client    *resty.Client
	latitude  float64
	longitude float64
	log       *zap.Logger
}

func NewOpenMeteo(latitude, longitude float64, log *zap.Logger) *OpenMeteo {
	client := resty.New().
		SetBaseURL(openMeteoURL).
		SetTimeout(5 * time.Second)

	return &OpenMeteo{
		client:    client,
		latitude:  latitude,
		longitude: longitude,
		log:       log,
	}
}

type openMeteoResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WeatherCode int     `json:"weathercode"`
	} `json:"current_weather"`
}

func (o *OpenMeteo) Current(ctx context.Context) (Weather, error) {
	var out openMeteoResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":        fmt.Sprintf("%.4f", o.latitude),
			"longitude":       fmt.Sprintf("%.4f", o.longitude),
			"current_weather": "true",
		}).
		SetResult(&out).
		Get("/v1/forecast")
	if err != nil {
		return Weather{}, err
	}
	if resp.IsError() {
		return Weather{}, fmt.Errorf("weather api returned status %d", resp.StatusCode())
	}

	return Weather{
		Description: describeWeatherCode(out.CurrentWeather.WeatherCode),
		TempC:       out.CurrentWeather.Temperature,
	}, nil
}

// describeWeatherCode maps WMO weather codes to short descriptions.
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code <= 3:
		return "partly cloudy"
	case code == 45 || code == 48:
		return "foggy"
	case code >= 51 && code <= 57:
		return "drizzle"
	case code >= 61 && code <= 67:
		return "rainy"
	case code >= 71 && code <= 77:
		return "snowy"
	case code >= 80 && code <= 82:
		return "rain showers"
	case code >= 95:
		return "thunderstorm"
	default:
		return "overcast"
	}
}
