package nlu

import "regexp"

// The pattern set covers the two request languages (Chinese and English).
// Separators accepted between a keyword and its value: = : ： is 为 是.
const sep = `\s*(?:=|:|：|is|为|是)\s*`

// token matches a value up to the next delimiter in either language.
const token = `([^\s,;，。；]+)`

const ident = `([A-Za-z0-9_]+)`

var (
	kindPattern = regexp.MustCompile(`(?i)(postgres(?:ql)?|pgsql|mysql|sql\s*server|sqlserver|mssql|azure\s*sql)`)

	hostPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:hostname|host|地址|主机)` + sep + token),
		regexp.MustCompile(`(?:地址为|主机为)\s*` + token),
	}

	portPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:port|端口)` + sep + `(\d+)`),
	}

	databasePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:database|db|数据库(?:名称|名)?)` + sep + token),
		regexp.MustCompile(`(?:数据库(?:名称|名)?(?:为|是))\s*` + token),
	}

	usernamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:用户名|username|user|账号)` + sep + token),
		regexp.MustCompile(`(?i)(?:user|username)\s+` + token),
	}

	passwordPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:密码|password|pwd|口令)` + sep + token),
		regexp.MustCompile(`(?i)(?:password|pwd)\s+` + token),
	}

	sourceTablePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:表名为|表名是|源表为|源表是)\s*([A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+)?)`),
		regexp.MustCompile(`(?i)(?:source\s+table|table(?:\s+name)?)` + sep + `([A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+)?)`),
		regexp.MustCompile(`表\s*(?:=|:|：|为|是)?\s*([A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+)?)`),
		regexp.MustCompile(`([A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+)?)\s*表`),
	}

	sinkTablePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:目标表名为|目标表名是|目标表为|目标表是|写入表|写入|抽取到|导入到)\s*([A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+){0,2})`),
		regexp.MustCompile(`(?i)(?:target\s+table|into\s+table|write\s+to|into)\s+` + `([A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+){0,2})`),
		regexp.MustCompile(`([A-Za-z0-9_]+\.[A-Za-z0-9_]+)\s*的?\s*表`),
		regexp.MustCompile(`表\s+([A-Za-z0-9_]+\.[A-Za-z0-9_]+)`),
	}

	catalogPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:catalog|目录|统一目录)` + sep + token),
	}

	schemaPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:schema|模式|架构)` + sep + ident),
	}

	incrementPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:increment(?:_field|\s+field)?|watermark|增量字段)` + sep + ident),
	}

	schedulePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:schedule|cron|调度)` + sep + `"([^"]+)"`),
	}

	jobNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:job[\s_]*name|任务名称?|作业名称?)` + sep + `([A-Za-z0-9_-]+)`),
	}

	pathPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(abfss://[^\s,，。；;]+)`),
	}

	modePattern      = regexp.MustCompile(`(?i)(overwrite|覆盖|append|追加)`)
	frequencyPattern = regexp.MustCompile(`(?i)(hourly|每小时|daily|每天|每日|weekly|每周)`)
	layerPattern     = regexp.MustCompile(`(?i)(bronze|silver|gold|青铜层|白银层|黄金层)`)

	// sinkBoundary splits the text into a source segment (before the first
	// write/target keyword) and a sink segment (from it on), mirroring the
	// reading order of both request languages.
	sinkBoundary = regexp.MustCompile(`(?i)(写入|抽取到|导入到|sink|目标|target|write\s+(?:to|into)|load\s+into|into\s+table)`)
)

var kindAliases = map[string]string{
	"postgres":   "postgres",
	"postgresql": "postgres",
	"pgsql":      "postgres",
	"mysql":      "mysql",
	"sqlserver":  "sqlserver",
	"sql server": "sqlserver",
	"mssql":      "sqlserver",
	"azure sql":  "sqlserver",
}

var modeAliases = map[string]string{
	"overwrite": "overwrite",
	"覆盖":        "overwrite",
	"append":    "append",
	"追加":        "append",
}

var frequencyAliases = map[string]string{
	"hourly": "hourly",
	"每小时":    "hourly",
	"daily":  "daily",
	"每天":     "daily",
	"每日":     "daily",
	"weekly": "weekly",
	"每周":     "weekly",
}

var layerAliases = map[string]string{
	"bronze": "bronze",
	"青铜层":    "bronze",
	"silver": "silver",
	"白银层":    "silver",
	"gold":   "gold",
	"黄金层":    "gold",
}
