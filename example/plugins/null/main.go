// Command null is the null device packaged as a loadable module.
//
//	go build -buildmode=plugin -o null.so ./example/plugins/null
//	asioctl install -name "Null Device" ./null.so
//
// The module reads the shared configuration from the CWASIO_* environment
// variables of the host process.
package main

import (
	"runtime"
	"strings"

	"github.com/snowmerak/asio.go/lib/config"
	"github.com/snowmerak/asio.go/lib/driver"
	"github.com/snowmerak/asio.go/lib/guid"
	"github.com/snowmerak/asio.go/lib/logging"
	"github.com/snowmerak/asio.go/lib/module"
	"github.com/snowmerak/asio.go/lib/module/nulldriver"
	"github.com/snowmerak/asio.go/lib/registry"
)

const version = "1.0.0"

func newScaffold() *module.Scaffold {
	cfg, err := config.Load("")
	if err != nil {
		cfg = config.Default()
	}
	logger := logging.New(cfg.Logging, version).With("module", "null")

	opts := []module.Option{
		module.WithRegistry(registry.NewDefault(cfg.Registry.Root, registry.WithLogger(logger.Logger))),
		module.WithLogger(logger.Logger),
	}
	switch strings.ToLower(cfg.Loader.Strategy) {
	case "activation":
		opts = append(opts, module.WithClasses(registry.NewDefaultClasses(cfg.Registry.Classes)))
	case "auto":
		if runtime.GOOS == "windows" {
			opts = append(opts, module.WithClasses(registry.NewDefaultClasses(cfg.Registry.Classes)))
		}
	}
	return nulldriver.NewScaffold(nil, opts...)
}

var scaffold = newScaffold()

// InstantiateDriver is the symbol loader entry point.
func InstantiateDriver() (driver.Driver, error) {
	return scaffold.InstantiateDriver()
}

// GetClassObject is the activation loader entry point.
func GetClassObject(clsid, iid guid.GUID) (driver.ClassFactory, error) {
	return scaffold.GetClassObject(clsid, iid)
}

// CanUnloadNow reports whether the module is unused.
func CanUnloadNow() driver.HResult {
	return scaffold.CanUnloadNow()
}

// RegisterServer installs the instance named by CWASIO_INSTALL_NAME.
func RegisterServer() error {
	return scaffold.RegisterServer()
}

// UnregisterServer removes the instance named by CWASIO_INSTALL_NAME.
func UnregisterServer() error {
	return scaffold.UnregisterServer()
}

func main() {}
