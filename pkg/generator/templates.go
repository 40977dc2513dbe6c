package generator

// batchDeltaTemplate renders a PySpark batch job: JDBC read, transformations
// in input order, Delta write to the fully qualified target. Extension
// points render as marked placeholders when the optional fields behind them
// are absent, never as silently omitted logic.
const batchDeltaTemplate = `# Generated ingestion job: {{.JobName}}
{{- if .Description}}
# {{.Description}}
{{- end}}
{{- if .Frequency}}
# Expected run frequency: {{.Frequency}}
{{- end}}
{{- if .Schedule}}
# Suggested schedule (cron): {{.Schedule}}
{{- end}}

from pyspark.sql import SparkSession
from pyspark.sql import functions as F

spark = SparkSession.builder.appName("{{.JobName}}").getOrCreate()

reader = (
    spark.read.format("jdbc")
    .option("driver", "{{.Driver}}")
    .option("url", "{{.JDBCURL}}")
    .option("dbtable", "{{.SourceTable}}")
    .option("user", "{{.Username}}")
    .option("password", "{{.Password}}")
{{- range .SourceOptions}}
    .option("{{.Key}}", "{{.Value}}")
{{- end}}
)

df = reader.load()

{{- if .IncrementField}}

# Incremental extraction on {{.IncrementField}}.
# WATERMARK: replace the bound below with the last checkpointed value.
watermark_lower_bound = None
if watermark_lower_bound is not None:
    df = df.filter(F.col("{{.IncrementField}}") > watermark_lower_bound)
{{- else}}

# [placeholder] incremental watermark: no increment_field configured
{{- end}}
{{- range .Transformations}}

{{.}}
{{- end}}

{{- if .CurationHook}}

# CURATION ({{.Layer}}): apply cleansing and business rules before the write.
# [placeholder] curation hook
{{- else}}

# [placeholder] curation: bronze layer takes raw data as-is
{{- end}}

writer = (
    df.write.format("delta")
    .mode("{{.Mode}}")
{{- range .SinkOptions}}
    .option("{{.Key}}", "{{.Value}}")
{{- end}}
{{- if .Path}}
    .option("path", "{{.Path}}")
{{- end}}
)
writer.saveAsTable("{{.Target}}")

spark.stop()
`
