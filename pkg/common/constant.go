package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyIOTDBType string = "IOT_DB_TYPE"

	EnvKeyIOTLogDir       string = "IOT_LOG_DIR"
	EnvKeyIOTLogMaxSizeMB string = "IOT_LOG_MAX_SIZE_MB"

	EnvKeyIOTHttpHostPort string = "IOT_HTTP_HOST_PORT"
	EnvKeyIOTGrpcHostPort string = "IOT_GRPC_HOST_PORT"

	EnvKeyIOTDefaultRate  string = "IOT_DEFAULT_RATE"
	EnvKeyIOTDefaultBurst string = "IOT_DEFAULT_BURST"

	EnvKeyIOTSeedFile     string = "IOT_SEED_FILE"
	EnvKeyIOTOfflineAfter string = "IOT_OFFLINE_AFTER"
	EnvKeyIOTWsReadLimit  string = "IOT_WS_READ_LIMIT"

	EnvKeyIOTMqttBroker   string = "IOT_MQTT_BROKER"
	EnvKeyIOTMqttTopic    string = "IOT_MQTT_TOPIC"
	EnvKeyIOTMqttClientID string = "IOT_MQTT_CLIENT_ID"

	EnvKeyOpenWeatherAPIKey string = "OPENWEATHER_API_KEY"
	EnvKeyGoogleSolarAPIKey string = "GOOGLE_SOLAR_API_KEY"

	LoggerNameIOTCore       string = "iot_core"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerNameWsServer      string = "ws_server"
	LoggerNameMqttBridge    string = "mqtt_bridge"
	LoggerNameStore         string = "store"
	LoggerNameProxy         string = "proxy"

	LoggerFieldIOTCategory        string = "category"
	LoggerCategoryIOTTelemetry    string = "telemetry"
	LoggerCategoryIOTInstallation string = "installation"
	LoggerCategoryIOTReading      string = "reading"
	LoggerCategoryIOTWatchdog     string = "watchdog"
	LoggerCategoryStoreSeed       string = "seed"
	LoggerCategoryWsConnection    string = "connection"
	LoggerCategoryWsBroadcast     string = "broadcast"
	LoggerCategoryProxyUpstream   string = "upstream"
)
