package loader

// documentSchema constrains the field types of the portable config document.
// It deliberately carries no "required" clauses: absence is the Validator's
// concern, the loader only rejects documents whose present fields have the
// wrong shape.
const documentSchema = `{
  "type": "object",
  "properties": {
    "job_name": {"type": "string"},
    "description": {"type": "string"},
    "source": {
      "type": "object",
      "properties": {
        "type": {"type": "string"},
        "jdbc_url": {"type": "string"},
        "host": {"type": "string"},
        "port": {"type": "integer"},
        "database": {"type": "string"},
        "table": {"type": "string"},
        "increment_field": {"type": "string"},
        "frequency": {"type": "string"},
        "schedule": {"type": "string"},
        "options": {
          "type": "object",
          "additionalProperties": {"type": "string"}
        }
      }
    },
    "transformations": {
      "type": "array",
      "items": {"type": "object"}
    },
    "sink": {
      "type": "object",
      "properties": {
        "type": {"type": "string"},
        "catalog": {"type": "string"},
        "database": {"type": "string"},
        "table": {"type": "string"},
        "layer": {"type": "string"},
        "mode": {"type": "string"},
        "path": {"type": "string"},
        "options": {
          "type": "object",
          "additionalProperties": {"type": "string"}
        }
      }
    }
  }
}`
