// Copyright (C) 2025 Oowatch Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import "time"

// Namespaces in the settings store.
const (
	// WatchdogNamespace holds the watchdog's own settings and status
	// fields.
	WatchdogNamespace = "oo_monitor"

	// ServiceNamespace is the monitored OnlyOffice connector's own
	// configuration namespace; restore writes land here.
	ServiceNamespace = "onlyoffice"
)

// Setting keys under WatchdogNamespace.
const (
	keyOutFilePath         = "out_file_path"
	keyIntervalMinutes     = "check_interval_minutes"
	keyIntervalLegacy      = "check_interval" // legacy seconds, read-only after migration
	keyEnabled             = "enabled"
	keyLastCheckAt         = "last_check_at"
	keyLastCheckOK         = "last_check_ok"
	keyLastReconnectAt     = "last_reconnect_at"
	keyLastReconnectOK     = "last_reconnect_ok"
	keyLastFileTestAt      = "last_file_test_at"
	keyLastFileTestOK      = "last_file_test_ok"
	keyLastFileTestMessage = "last_file_test_message"
)

// Blob names in the backup folder.
const (
	snapshotBlob = "onlyoffice_backup.json"
	outFileBlob  = "out-oo.txt"
	historyBlob  = "history.json"
)

const (
	// historyLimit caps the history log; oldest entries are evicted first.
	historyLimit = 10

	// defaultLegacySeconds is assumed when the legacy seconds setting is
	// absent or non-positive.
	defaultLegacySeconds = 900

	// defaultProbeTimeout bounds the health-check process; a timeout is
	// treated like a non-zero exit.
	defaultProbeTimeout = 30 * time.Second
)

// ServiceConfigKeys is the fixed set of OnlyOffice connector settings
// captured by a backup. A freshly captured snapshot contains every key
// (missing live values are recorded as empty strings). Extend this list
// to cover new connector settings; restore logic applies whatever keys a
// snapshot holds and never consults the list.
var ServiceConfigKeys = []string{
	"demo",
	"DocumentServerUrl",
	"documentserverInternal",
	"StorageUrl",
	"secret",
	"defFormats",
	"editFormats",
	"sameTab",
	"preview",
	"advanced",
	"cronChecker",
	"versionHistory",
	"protection",
	"customizationChat",
	"customizationCompactHeader",
	"customizationFeedback",
	"customizationForcesave",
	"customizationHelp",
	"customizationToolbarNoTabs",
	"customizationReviewDisplay",
	"customizationTheme",
	"groups",
	"verify_peer_off",
	"jwt_secret",
	"jwt_header",
	"jwt_leeway",
	"settings_error",
	"limit_thumb_size",
	"permissions_modifyFilter",
	"customization_customer",
	"customization_loaderLogo",
	"customization_loaderName",
	"customization_logo",
	"customization_zoom",
	"customization_autosave",
	"customization_goback",
	"customization_macros",
	"customization_plugins",
	"editors_check_interval",
}
