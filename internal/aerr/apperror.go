// Package aerr provides application error type carrying tags, user messages,
// metadata and call stack.
package aerr

//
// apperror.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

type AppError struct {
	err     error
	tags    []string
	msg     string
	userMsg string
	meta    map[string]any
	stack   []string
}

// NewSimple create error without stack; used for sentinel errors.
func NewSimple(msg string, args ...any) AppError {
	return AppError{
		msg: fmt.Sprintf(msg, args...),
	}
}

func New(msg string, args ...any) AppError {
	return AppError{
		msg: fmt.Sprintf(msg, args...),
	}
}

func Newf(msg string, args ...any) AppError {
	return AppError{
		stack: getStack(),
		msg:   fmt.Sprintf(msg, args...),
	}
}

func Wrap(err error) AppError {
	return AppError{
		stack: getStack(),
		err:   err,
	}
}

func Wrapf(err error, msg string, args ...any) AppError {
	return AppError{
		stack: getStack(),
		err:   err,
		msg:   fmt.Sprintf(msg, args...),
	}
}

func (a AppError) WithMsg(msg string, args ...any) AppError {
	n := a.clone()
	n.msg = fmt.Sprintf(msg, args...)

	return n
}

func (a AppError) WithTag(tag string) AppError {
	if slices.Contains(a.tags, tag) {
		return a
	}

	n := a.clone()
	n.tags = append(n.tags, tag)

	return n
}

func (a AppError) WithUserMsg(msg string, args ...any) AppError {
	n := a.clone()
	n.userMsg = fmt.Sprintf(msg, args...)

	return n
}

func (a AppError) WithMeta(keyval ...any) AppError {
	if len(keyval)%2 != 0 {
		panic("invalid argument number to call WithMeta")
	}

	nerr := a.clone()

	if nerr.meta == nil {
		nerr.meta = make(map[string]any)
	}

	for i := 0; i < len(keyval); i += 2 {
		key, ok := keyval[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keyval[i])
		}

		nerr.meta[key] = keyval[i+1]
	}

	return nerr
}

// WithError create copy of AppError with new error and updated stack.
func (a AppError) WithError(err error) AppError {
	n := a.clone()
	n.err = err
	n.stack = getStack()

	return n
}

// Is report true when target is AppError of the same kind: with the same message
// and tags. Wrapped error, user message, stack and meta are not compared so errors
// created by ApplyFor / WithError / WithMeta from sentinel match the sentinel.
func (a AppError) Is(target error) bool {
	tapperr, ok := target.(AppError)
	if !ok {
		return false
	}

	return tapperr.msg == a.msg && slices.Equal(tapperr.tags, a.tags)
}

func (a AppError) Error() string {
	switch {
	case a.msg != "" && a.err != nil:
		return a.msg + " (" + a.err.Error() + ")"
	case a.msg != "":
		return a.msg
	case a.err != nil:
		return a.err.Error()
	default:
		return "unknown error"
	}
}

func (a AppError) Unwrap() error {
	return a.err
}

func (a AppError) String() string {
	msg := a.userMsg
	if msg == "" {
		msg = a.msg
	}

	if msg != "" {
		return msg
	}

	if a.err != nil {
		return a.err.Error()
	}

	return ""
}

func (a AppError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			msg := CollectErrors(a)
			fmt.Fprintf(s, "%+v\n", msg)

			return
		}

		fallthrough
	case 's', 'q':
		io.WriteString(s, a.Error()) //nolint:errcheck
	}
}

// Clone AppError, do not fill stack.
func (a AppError) clone() AppError {
	return AppError{
		stack:   a.stack,
		msg:     a.msg,
		tags:    slices.Clone(a.tags),
		userMsg: a.userMsg,
		meta:    maps.Clone(a.meta),
		err:     a.err,
	}
}

//-------------------------------------------------------------

// ApplyFor create copy of AppError with replaced error and updated location.
// Optional arguments set userMsg (if is not empty).
func ApplyFor(aerr AppError, err error, usermsg ...string) AppError {
	if err == nil {
		panic("err for apply is nil")
	}

	nerr := aerr.clone()
	nerr.stack = getStack()
	nerr.err = err

	if len(usermsg) > 0 && usermsg[0] != "" {
		nerr.userMsg = usermsg[0]
	}

	return nerr
}

//-------------------------------------------------------------

func AsAppError(err error) (AppError, bool) {
	var ae AppError
	if errors.As(err, &ae) {
		return ae, true
	}

	return ae, false
}

//-------------------------------------------------------------

func HasTag(err error, tag string) bool {
	for _, ae := range Flatten(err) {
		if slices.Contains(ae.tags, tag) {
			return true
		}
	}

	return false
}

func GetTags(err error) []string {
	tags := []string{}

	for _, ae := range Flatten(err) {
		for _, t := range ae.tags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}

	return tags
}

func GetUserMessage(err error) string {
	for _, ae := range Flatten(err) {
		if ae.userMsg != "" {
			return ae.userMsg
		}
	}

	return ""
}

func GetUserMessageOr(err error, defaultmsg string) string {
	msg := GetUserMessage(err)
	if msg == "" {
		return defaultmsg
	}

	return msg
}

func GetStack(err error) []string {
	for _, ae := range Flatten(err) {
		if len(ae.stack) > 0 {
			return ae.stack
		}
	}

	return nil
}

// Flatten return all AppErrors from err chain; the deepest first.
func Flatten(err error) []AppError {
	errs := []AppError{}

	for ; err != nil; err = errors.Unwrap(err) {
		if ae, ok := err.(AppError); ok { //nolint:errorlint
			errs = append(errs, ae)
		}
	}

	slices.Reverse(errs)

	return errs
}

func CollectErrors(err error) []string {
	errs := []string{}

	for ; err != nil; err = errors.Unwrap(err) {
		apperr, ok := err.(AppError) //nolint:errorlint
		if !ok {
			errs = append(errs, err.Error())

			continue
		}

		errmsg := apperr.msg
		if errmsg == "" {
			errmsg = "<wrapped>"
		}

		if len(apperr.stack) > 0 {
			errmsg += " [" + apperr.stack[0] + "]"
		}

		errmsg += fmt.Sprintf("%v/%v", apperr.tags, apperr.meta)

		errs = append(errs, errmsg)
	}

	slices.Reverse(errs)

	return errs
}

//-------------------------------------------------------------

type uniqueList []string

func (u *uniqueList) append(value ...string) {
	for _, v := range value {
		if !slices.Contains(*u, v) {
			*u = append(*u, v)
		}
	}
}

//-------------------------------------------------------------

type zerologErrorMarshaller struct {
	err error
}

func (m zerologErrorMarshaller) MarshalZerologObject(event *zerolog.Event) { //nolint:cyclop
	var (
		stack, errs []string
		meta        map[string]any
	)

	usermsg := make(uniqueList, 0)
	tags := make(uniqueList, 0)

	for err := m.err; err != nil; err = errors.Unwrap(err) {
		apperr, ok := err.(AppError) //nolint:errorlint
		if !ok {
			errs = append(errs, err.Error())

			continue
		}

		if apperr.userMsg != "" {
			usermsg.append(apperr.userMsg)
		}

		if apperr.stack != nil {
			stack = apperr.stack
		}

		if apperr.msg != "" {
			errs = append(errs, apperr.msg)
		}

		tags.append(apperr.tags...)

		if apperr.meta != nil {
			if meta == nil {
				meta = make(map[string]any)
			}

			maps.Copy(meta, apperr.meta)
		}
	}

	if len(usermsg) > 0 {
		slices.Reverse(usermsg)
		event.Strs("user_msg", usermsg)
	}

	if stack != nil {
		event.Strs("stack", stack)
	}

	if errs != nil {
		slices.Reverse(errs)
		event.Strs("errors", errs)
	}

	if len(tags) > 0 {
		event.Strs("tags", tags)
	}

	if meta != nil {
		event.Any("meta", meta)
	}
}

// ErrorMarshalFunc render errors in zerolog events; set as zerolog.ErrorMarshalFunc.
func ErrorMarshalFunc(err error) any {
	if err != nil {
		return zerologErrorMarshaller{err}
	}

	return err
}

//-------------------------------------------------------------

var skipFunctions = []string{ //nolint:gochecknoglobals
	"net/http.HandlerFunc.ServeHTTP",
	"runtime.goexit",
}

const maxStack = 10

func getStack() []string {
	pc := make([]uintptr, 32) //nolint:mnd

	n := runtime.Callers(3, pc) //nolint:mnd
	if n == 0 {
		return nil
	}

	pc = pc[:n]
	frames := runtime.CallersFrames(pc)
	stack := make([]string, 0, n)

	for {
		frame, more := frames.Next()
		funcname := frame.Function

		if !slices.Contains(skipFunctions, funcname) {
			funcname = funcname[strings.LastIndex(funcname, "/")+1:]
			funcname = funcname[strings.Index(funcname, ".")+1:]
			stack = append(stack, frame.File+":"+strconv.Itoa(frame.Line)+":"+funcname)
		}

		if !more || len(stack) == maxStack {
			break
		}
	}

	return stack
}
