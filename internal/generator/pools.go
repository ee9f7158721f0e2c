package generator

// Fixed pools for synthetic field enrichment. These are narrative content,
// not logic; the generator only ever indexes into them uniformly.

var usernames = []string{
	"asmith", "jdoe", "mchen", "root", "svc-deploy", "backup-op",
	"pwilliams", "admin", "oncall", "ci-runner",
}

var processes = []string{
	"nc.exe", "powershell.exe", "cryptominer", "unknown_bin",
	"/tmp/.hidden/sh", "xmrig", "reverse_shell.py", "wget",
}

var services = []string{
	"auth-service", "payment-gateway", "order-api", "inventory-db",
	"mail-relay", "cdn-edge", "session-cache",
}

var resources = []string{
	"/etc/shadow", "/var/lib/secrets/api-keys.json", "s3://prod-backups",
	"/admin/console", "db://customers/pii", "/finance/reports",
}

var domainNames = []string{
	"updates-cdn", "telemetry-sync", "cdn-mirror", "api-billing",
	"login-verify", "secure-portal", "metrics-push",
}

var domainTLDs = []string{".net", ".xyz", ".info", ".cc", ".top"}

var urlSegments = []string{"api", "login", "admin", "checkout", "search", "account"}

var urlLeaves = []string{"index.php", "submit", "v2/items", "reset", "export"}

var httpCodes = []int{400, 401, 403, 404, 429, 500, 502, 503}
