package config

import "os"

type Config struct {
	ProjectID   string
	Region      string
	LogLevel    string
	KMSKeyName  string
	VertexModel string
	Port        string
}

func New() *Config {
	return &Config{
		ProjectID:   os.Getenv("PROJECTID"),
		Region:      os.Getenv("REGION"),
		LogLevel:    os.Getenv("LOGLEVEL"),
		KMSKeyName:  os.Getenv("KMSKEYNAME"),
		VertexModel: getVertexModel(os.Getenv("VERTEXMODEL")),
		Port:        getPort(os.Getenv("PORT")),
	}
}

func getVertexModel(model string) string {
	if model == "" {
		return "gemini-2.0-flash"
	}
	return model
}

func getPort(port string) string {
	if port == "" {
		return "8080"
	}
	return port
}
