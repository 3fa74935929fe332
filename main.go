package robokassa

import (
	"flag"

	"robokassa/config"
	"robokassa/internal"
	"robokassa/services"
)

func main() {

	logger := internal.NewLogger("internal", false, nil)

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	logger.Info("using config file: " + *configPath)
	conf, err := config.GetConfig(*configPath)
	if err != nil {
		logger.Error("boot", err)
		return
	}

	var mongo services.Database
	if conf.Mongo.Enabled {
		mongo, err = internal.NewMongoClient(conf)
		if err != nil {
			logger.Error("mongo client", err)
			return
		}
		logger.Info("mongo client initialized")
	}

	client := internal.NewClient(conf)
	client.SetLogger(internal.NewLogger("client", conf.IsDebug, mongo))
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("client close", err)
		}
	}()

	server := internal.NewServer(conf)
	server.SetLogger(internal.NewLogger("server", conf.IsDebug, mongo))
	server.SetGateway(client)
	server.SetDatabase(mongo)

	err = server.Start()
	if err != nil {
		logger.Error("server start", err)
		return
	}

}
