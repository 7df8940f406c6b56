package cmd

import (
	_ "panelix-setup/cmd/check"
	_ "panelix-setup/cmd/config"
	_ "panelix-setup/cmd/install"
	_ "panelix-setup/cmd/root"
	_ "panelix-setup/cmd/server"
	_ "panelix-setup/cmd/service"
	_ "panelix-setup/cmd/token"
	_ "panelix-setup/cmd/update"
)
