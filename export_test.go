package auth

var FormatLogLine = formatLogLine

type DefLogger = defLogger
