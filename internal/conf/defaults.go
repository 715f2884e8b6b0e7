// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("ebird.apikey", "")
	viper.SetDefault("ebird.apikeyfile", "")
	viper.SetDefault("ebird.baseurl", "https://api.ebird.org/v2")
	viper.SetDefault("ebird.timeout", 20*time.Second)
	viper.SetDefault("ebird.requestspersecond", 5.0)
	viper.SetDefault("ebird.maxretries", 3)
	viper.SetDefault("ebird.locale", "en")
	viper.SetDefault("ebird.breaker.maxfailures", 5)
	viper.SetDefault("ebird.breaker.opentimeout", 30*time.Second)

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dir", "data/.cache")
	viper.SetDefault("cache.ttl", 4*time.Hour)

	viper.SetDefault("search.latitude", 0.0)
	viper.SetDefault("search.longitude", 0.0)
	viper.SetDefault("search.radius", 50.0)
	viper.SetDefault("search.days", 14)
	viper.SetDefault("search.top", 20)

	viper.SetDefault("lifelist.path", "data/MyEBirdData.csv")

	viper.SetDefault("webserver.host", "")
	viper.SetDefault("webserver.port", 8000)
	viper.SetDefault("webserver.allowedorigins", []string{"http://localhost:5173"})
	viper.SetDefault("webserver.bodylimit", "1M")
	viper.SetDefault("webserver.readtimeout", 30*time.Second)
	viper.SetDefault("webserver.writetimeout", 60*time.Second)
	viper.SetDefault("webserver.idletimeout", 120*time.Second)
	viper.SetDefault("webserver.shutdowntimeout", 10*time.Second)
	viper.SetDefault("webserver.metrics", true)

	viper.SetDefault("logging.defaultlevel", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.console.format", "text")
	viper.SetDefault("logging.fileoutput.enabled", false)
	viper.SetDefault("logging.fileoutput.path", "logs/ebird-recommend.log")
	viper.SetDefault("logging.fileoutput.level", "info")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "production")
}
